// SPDX-License-Identifier: MPL-2.0

// Package testutil provides fixtures shared by package tests: temporary Python
// package trees and environment helpers that restore state on cleanup.
package testutil
