// Package domain contains the crystallographic entities shared across the
// simulator: the cubic crystal, its atom sites, Miller reflections and the
// resulting diffraction pattern. The types carry no infrastructure concerns
// and are treated as immutable once constructed.
package domain
