// Package testutil provides lifecycle helpers for testing against
// lifecycle-managed components such as database and storage clients.
//
// A TestComponent is a regular component.Component with extra
// Reset/Snapshot/Restore methods so tests can seed state, run a case,
// and roll back between cases:
//
//	func TestRooms(t *testing.T) {
//	    testutil.T(t).Setup(db)
//	    // db is stopped automatically when the test ends
//	}
//
// For multi-component setups (database plus storage), use Manager to
// start everything in order and stop it in reverse.
package testutil
