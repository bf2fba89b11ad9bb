package secrets

import "context"

// Gateway fetches the authoritative secret set for an organization from
// the remote provider. Implementations perform their own authentication
// and response validation and hand back a plain name-to-value map.
//
// A projectID narrows the result to one project; an empty projectID means
// all projects. Secrets the provider reports without a project association
// are unscoped and match every filter.
type Gateway interface {
	Fetch(ctx context.Context, organizationID, projectID string) (map[string]string, error)
}

// ProviderError wraps a failure from the remote secrets provider. The
// cache propagates it to the caller unchanged: fetch failures are never
// retried and never cached.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return "provider " + e.Op + " failed: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
