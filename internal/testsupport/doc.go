// Package testsupport provides fixtures shared by package tests: temp-dir
// configs, transcript builders and artifact stores with cleanup.
package testsupport
