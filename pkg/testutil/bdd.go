package testutil

import "testing"

// Given names the state a scenario starts from, such as a seeded catalog.
// Nested When and Then calls share whatever the Given closure sets up, so a
// flow like upload, fetch, then re-upload reads top to bottom.
func Given(t *testing.T, state string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+state, fn)
}

// When names the request under test.
func When(t *testing.T, action string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+action, fn)
}

// Then names the observable outcome being asserted.
func Then(t *testing.T, outcome string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+outcome, fn)
}
