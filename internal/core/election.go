package core

// ElectHost picks the successor host among the members that remain after
// the host left. Members are in join order, so the earliest joiner wins.
func ElectHost(survivors []Member) (string, bool) {
	if len(survivors) == 0 {
		return "", false
	}
	return survivors[0].ID, true
}
