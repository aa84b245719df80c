// Package place holds the venue records that occupancy analysis runs
// against. A place is a named space with a seating capacity and
// optionally an uploaded image or video used as its analysis source.
package place
