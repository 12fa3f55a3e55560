package payments

// Repo is the session store: the single source of truth for locally tracked
// sessions. The orchestrator service is its only mutator. Implementations
// must be safe for concurrent use by multiple in-flight requests.
type Repo interface {
	Upsert(id string, session Session) error
	Get(id string) (Session, error)
	List() []Session
	// FindByToken matches a session by id or correlation token. Linear scan
	// is acceptable at expected scale (O(n)); add a secondary token index if
	// this grows.
	FindByToken(token string) (Session, error)
}
