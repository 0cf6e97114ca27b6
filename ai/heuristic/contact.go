package heuristic

func init() {
	Register("contact", 4, scoreContact)
}

// scoreContact favours placements that pack against walls and blocks, leaving fewer isolated holes.
func scoreContact(c *Candidate) float64 {
	return float64(Contacts(c))
}
