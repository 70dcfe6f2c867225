// Package resource implements the resource tree: typed invokers, the nodes
// they are attached to, and the matches and paths produced when tokens are
// resolved against the tree.
//
// The tree is built during registration and then sealed. A sealed tree
// rejects every mutation with ErrSealed and may be read from any number of
// goroutines without locking.
package resource
