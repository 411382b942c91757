// Package subnet derives the set of candidate host addresses to probe from
// the local network's address and mask. It has no side effects; the scan
// coordinator consumes its address sequence.
package subnet
