//go:build allocdebug

package allocator

// debugAssertions is true when built with -tags allocdebug, turning every
// assertf precondition check into a panic.
const debugAssertions = true
