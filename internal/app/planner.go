package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/student3964/MindVault/internal/util"
	"github.com/student3964/MindVault/pkg/domain"
)

// upcomingWindow is how far ahead an event deadline counts as "upcoming".
const upcomingWindow = 48 * time.Hour

const plannerSystemPrompt = "You are a study planner. Produce a realistic, " +
	"day-by-day study plan for the student's goals, subjects and timeframe. " +
	"Use plain text with short sections."

// AlertItem is what the alerts endpoint returns: events classified by
// deadline plus stored unread alerts.
type AlertItem struct {
	ID       string     `json:"id,omitempty"`
	Type     string     `json:"type"`
	Title    string     `json:"title,omitempty"`
	Message  string     `json:"message"`
	EventID  string     `json:"eventId,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// TaskPatch carries a partial task update; nil fields are left unchanged.
type TaskPatch struct {
	Title   *string
	Details *string
	Done    *bool
}

// CreateTask adds a planner task.
func (a *App) CreateTask(owner domain.User, title, details string) (domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Task{}, fmt.Errorf("%w: title required", ErrValidation)
	}
	now := time.Now().UTC()
	task := domain.Task{
		ID:        util.NewID(),
		OwnerID:   owner.ID,
		Title:     title,
		Details:   strings.TrimSpace(details),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// ListTasks returns the owner's tasks, newest first.
func (a *App) ListTasks(owner domain.User) ([]domain.Task, error) {
	return a.store.ListTasksByOwner(owner.ID)
}

// UpdateTask applies a partial update. Last write wins.
func (a *App) UpdateTask(owner domain.User, taskID string, patch TaskPatch) (domain.Task, error) {
	task, err := a.ownedTask(owner, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return domain.Task{}, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		task.Title = title
	}
	if patch.Details != nil {
		task.Details = strings.TrimSpace(*patch.Details)
	}
	if patch.Done != nil {
		task.Done = *patch.Done
	}
	task.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveTask(task); err != nil {
		return domain.Task{}, fmt.Errorf("save task: %w", err)
	}
	return task, nil
}

// DeleteTask removes an owned task.
func (a *App) DeleteTask(owner domain.User, taskID string) error {
	if _, err := a.ownedTask(owner, taskID); err != nil {
		return err
	}
	return a.store.DeleteTask(taskID)
}

func (a *App) ownedTask(owner domain.User, taskID string) (domain.Task, error) {
	task, ok, err := a.store.GetTask(taskID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	if task.OwnerID != owner.ID {
		return domain.Task{}, ErrNotFound
	}
	return task, nil
}

// CreateEvent adds a planner event with a deadline.
func (a *App) CreateEvent(owner domain.User, title, description string, deadline time.Time) (domain.Event, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Event{}, fmt.Errorf("%w: title required", ErrValidation)
	}
	if deadline.IsZero() {
		return domain.Event{}, fmt.Errorf("%w: deadline required", ErrValidation)
	}
	now := time.Now().UTC()
	event := domain.Event{
		ID:          util.NewID(),
		OwnerID:     owner.ID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Deadline:    deadline.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.SaveEvent(event); err != nil {
		return domain.Event{}, fmt.Errorf("save event: %w", err)
	}
	return event, nil
}

// ListEvents returns events within the optional deadline range.
func (a *App) ListEvents(owner domain.User, from, to *time.Time) ([]domain.Event, error) {
	return a.store.ListEventsByOwner(owner.ID, from, to)
}

// UpcomingDeadlines returns future events ordered by deadline.
func (a *App) UpcomingDeadlines(owner domain.User) ([]domain.Event, error) {
	now := time.Now().UTC()
	return a.store.ListEventsByOwner(owner.ID, &now, nil)
}

// Alerts returns the derived deadline alerts plus stored unread alerts.
func (a *App) Alerts(owner domain.User) ([]AlertItem, error) {
	events, err := a.store.ListEventsByOwner(owner.ID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	items := DeriveAlerts(events, time.Now().UTC())

	stored, err := a.store.ListUnreadAlertsByOwner(owner.ID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	for _, alert := range stored {
		items = append(items, AlertItem{
			ID:      alert.ID,
			Type:    "alert",
			Message: alert.Message,
			EventID: alert.EventID,
		})
	}
	return items, nil
}

// DeriveAlerts classifies events by deadline against now: passed deadlines
// are "expired", deadlines within the next two days are "upcoming", later
// ones are omitted.
func DeriveAlerts(events []domain.Event, now time.Time) []AlertItem {
	items := make([]AlertItem, 0, len(events))
	for _, ev := range events {
		deadline := ev.Deadline
		var kind, message string
		switch {
		case !deadline.After(now):
			kind = "expired"
			message = fmt.Sprintf("%q has passed its deadline", ev.Title)
		case deadline.Sub(now) <= upcomingWindow:
			kind = "upcoming"
			message = fmt.Sprintf("%q is due soon", ev.Title)
		default:
			continue
		}
		d := deadline
		items = append(items, AlertItem{
			Type:     kind,
			Title:    ev.Title,
			Message:  message,
			EventID:  ev.ID,
			Deadline: &d,
		})
	}
	return items
}

// MarkAlertRead marks a stored alert as read. Derived alerts have no
// stored row and cannot be marked.
func (a *App) MarkAlertRead(owner domain.User, alertID string) error {
	alert, ok, err := a.store.GetAlert(alertID)
	if err != nil {
		return fmt.Errorf("get alert: %w", err)
	}
	if !ok || alert.OwnerID != owner.ID {
		return ErrNotFound
	}
	alert.Read = true
	if err := a.store.SaveAlert(alert); err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

// GeneratePlan builds a study plan from the student's inputs. When the AI
// call fails it falls back to a static plan; the result is persisted
// either way.
func (a *App) GeneratePlan(ctx context.Context, owner domain.User, goals, subjects, timeframe string) (domain.StudyPlan, error) {
	goals = strings.TrimSpace(goals)
	subjects = strings.TrimSpace(subjects)
	timeframe = strings.TrimSpace(timeframe)
	if goals == "" && subjects == "" && timeframe == "" {
		return domain.StudyPlan{}, fmt.Errorf("%w: goals, subjects or timeframe required", ErrValidation)
	}

	prompt := fmt.Sprintf("Goals: %s\nSubjects: %s\nTimeframe: %s", goals, subjects, timeframe)
	planText := ""
	if a.generator != nil {
		if text, err := a.generator.GenerateText(ctx, plannerSystemPrompt, prompt); err == nil {
			planText = strings.TrimSpace(text)
		}
	}
	if planText == "" {
		planText = fallbackPlan(subjects, timeframe)
	}

	plan := domain.StudyPlan{
		ID:       util.NewID(),
		OwnerID:  owner.ID,
		Prompt:   prompt,
		PlanText: planText,
		Inputs: map[string]string{
			"goals":     goals,
			"subjects":  subjects,
			"timeframe": timeframe,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.SavePlan(plan); err != nil {
		return domain.StudyPlan{}, fmt.Errorf("save plan: %w", err)
	}
	return plan, nil
}

// fallbackPlan is returned when the AI provider is unavailable.
func fallbackPlan(subjects, timeframe string) string {
	if subjects == "" {
		subjects = "your subjects"
	}
	if timeframe == "" {
		timeframe = "the coming weeks"
	}
	return fmt.Sprintf(
		"Study plan for %s over %s:\n\n"+
			"1. Split each day into two focused sessions of 45 minutes with breaks.\n"+
			"2. Alternate subjects daily so nothing goes untouched for long.\n"+
			"3. End each week with a review session covering everything studied.\n"+
			"4. Reserve the final days before any deadline for practice questions.\n",
		subjects, timeframe)
}
