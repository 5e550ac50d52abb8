package model

// ReleaseInfo represents information extracted from a release event
type ReleaseInfo struct {
	Owner       string // Repository owner
	Repo        string // Repository name
	ReleaseID   int64  // GitHub release ID
	TagName     string // Release tag name
	Ref         string // Fully qualified ref (refs/tags/<tag>)
	ReleaseName string // Release name
	ReleaseURL  string // HTML URL of the release
	CommitSHA   string // Target commitish if it is a SHA, otherwise empty
	Sender      string // User who published the release
	Prerelease  bool   // Whether the release is marked as a prerelease
}

// FullName returns the owner/name form of the repository.
func (x *ReleaseInfo) FullName() string {
	return x.Owner + "/" + x.Repo
}
