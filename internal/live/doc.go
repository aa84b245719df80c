// Package live stores the most recent occupancy snapshot per place.
//
// A snapshot is the complete output of one analysis run: the flat
// seat list, the mirrored table layout, the occupancy percentage and
// a timestamp. Snapshots are replaced wholesale; there is no partial
// update path, which keeps a half-written seat map impossible.
package live
