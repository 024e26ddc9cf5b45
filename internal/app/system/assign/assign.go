// internal/app/system/assign/assign.go
package assign

// Pick returns the agent for the i-th item in a round-robin cycle over
// agents (0-indexed). It panics if agents is empty; callers validate the
// agent list before distributing.
func Pick[T any](i int, agents []T) T {
	return agents[i%len(agents)]
}

// Counts returns how many of n items each position in a cycle of m
// receives. Every position gets n/m or n/m+1.
func Counts(n, m int) []int {
	if m <= 0 {
		return nil
	}
	out := make([]int, m)
	for i := 0; i < n; i++ {
		out[i%m]++
	}
	return out
}
