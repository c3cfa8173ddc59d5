package gitrepo

// RepositoryDescriptor identifies one downstream repository to merge.
type RepositoryDescriptor struct {
	Name             string
	CloneURL         string
	SpaceOrTenantKey string
	// Workspace names the state workspace the descriptor was discovered in, when any.
	Workspace string
}
