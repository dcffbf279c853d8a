// Package blocks partitions function bodies into basic blocks and resolves
// every name the engine would otherwise look up at run time: jump and phi
// labels become block indices, call targets become function indices and
// variables become frame slots. The resulting Program is immutable.
package blocks
