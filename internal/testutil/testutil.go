// Package testutil provides helper functions for testing boardsweep components
package testutil

import (
	"fmt"
	"testing"

	"github.com/boardsweep/boardsweep/domain"
)

// NewWorkItem creates a work item with the common fields populated
func NewWorkItem(id int, title string, itemType domain.WorkItemType, state domain.WorkItemState) domain.WorkItem {
	return domain.WorkItem{
		ID:           id,
		Title:        title,
		WorkItemType: itemType,
		State:        state,
		URL:          fmt.Sprintf("https://boards.example.test/items/%d", id),
	}
}

// NewHealthyFeature creates an active feature that passes every hygiene check
func NewHealthyFeature(id int, title string, swag float64) domain.WorkItem {
	item := NewWorkItem(id, title, domain.WorkItemTypeFeature, domain.WorkItemStateActive)
	item.Swag = domain.Float64Ptr(swag)
	item.StatusNotes = fmt.Sprintf("[SWAG: %g] on track for the current sprint", swag)
	return item
}

// NewTrainFeature creates an active feature titled for a release train
func NewTrainFeature(id int, trainKey string, summary string) domain.WorkItem {
	title := fmt.Sprintf("Release Train %s - %s", trainKey, summary)
	return NewHealthyFeature(id, title, 3)
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}

// AssertEqual fails the test if expected != actual
func AssertEqual(t *testing.T, expected, actual any) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
}

// AssertTrue fails the test if condition is false
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Error(msg)
	}
}

// AssertFalse fails the test if condition is true
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Error(msg)
	}
}

// AssertNotNil fails the test if value is nil
func AssertNotNil(t *testing.T, value any) {
	t.Helper()
	if value == nil {
		t.Error("Expected non-nil value")
	}
}

// AssertNil fails the test if value is not nil
func AssertNil(t *testing.T, value any) {
	t.Helper()
	if value != nil {
		t.Errorf("Expected nil, got %v", value)
	}
}
