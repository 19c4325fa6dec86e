package ines

//go:generate go tool stringer -type=NTMirroring

// NTMirroring is the rule mapping the 4 logical nametables onto the 2KB of
// nametable RAM (or 4KB on four-screen boards).
type NTMirroring uint8

const (
	HorzMirroring NTMirroring = iota // A A / B B
	VertMirroring                    // A B / A B
	OnlyAScreen                      // A A / A A
	OnlyBScreen                      // B B / B B
	FourScreen                       // A B / C D
)
