package config

// Stress run defaults.
const (
	DefaultStressSeed         = 1
	DefaultStressPermutations = 10000
	DefaultStressKeys         = 64
	DefaultStressWorkers      = 0
	DefaultStressVerifyEvery  = 1
	DefaultStressHashBuckets  = 31
	DefaultStressTimeout      = "0s"
)

// Benchmark defaults.
const (
	DefaultBenchRounds     = 3
	DefaultBenchChart      = ""
	DefaultBenchArenaLimit = "1GiB"
)

// DefaultBenchSizes returns the tree sizes timed by the bench command.
func DefaultBenchSizes() []int {
	return []int{1_000, 10_000, 100_000}
}

// Observability defaults.
const (
	DefaultLogLevel     = "info"
	DefaultLogJSON      = false
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 1.0
	DefaultMetricsAddr  = ""
	DefaultEnvironment  = "development"
)
