package services

import (
	"context"
	"testing"
)

func TestPushToUserWithoutClientIsNoOp(t *testing.T) {
	ctx := context.Background()

	// push is optional wiring; a nil service must be safe to call
	var p *PushService
	p.PushToUser(ctx, 1, "Meal Reminder", "Time to eat", map[string]string{"type": "meal_reminder"})

	// a service without an SNS client behaves the same
	p = NewPushService(openTestDB(t), nil, "")
	p.PushToUser(ctx, 1, "Meal Reminder", "Time to eat", nil)
}
