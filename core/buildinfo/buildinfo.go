package buildinfo

// Set at build time, for example:
//
//	go build -ldflags "-X 'github.com/m3rciful/rewardbot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/rewardbot/core/buildinfo.Commit=$(git rev-parse --short HEAD)'" ./cmd/rewardbot
var (
	// Version is the release tag of the binary.
	Version = "dev"
	// Commit is the short revision the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build time, empty for local builds.
	Date = ""
)
