// Package shared holds helpers used across packages that belong to no single
// domain layer. Test helpers live in testutil and are imported only from
// _test.go files.
package shared
