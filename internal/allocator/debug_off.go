//go:build !allocdebug

package allocator

// debugAssertions is false in ordinary builds; assertf is then a no-op that
// the compiler inlines away. Build with -tags allocdebug to turn
// precondition violations into panics instead of silently tolerating them.
const debugAssertions = false
