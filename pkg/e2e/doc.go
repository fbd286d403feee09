// Package e2e drives the sample app on a real Appium server.
//
// Run with: go test -tags e2e ./pkg/e2e/...
// The target comes from crashcheck.yaml in CRASHCHECK_HOME plus the usual
// environment switches (CRASHCHECK_PLATFORM, CRASHCHECK_REMOTE_FARM, APPIUM_URL).
package e2e
