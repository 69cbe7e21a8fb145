// Package field implements the artificial potential field over a voxelized
// obstacle point cloud: grid construction, radius-bounded neighborhood
// queries, and the inverse-distance repulsive force law.
//
// The grid is built once from a fine cloud and is immutable afterwards; the
// per-step products (active point set, repulsive force) live for exactly one
// control cycle.
package field
