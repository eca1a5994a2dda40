package storage

import "strings"

// Keys builds the namespaced redis keys. Every key starts with the namespace
// so several deployments can share one redis.
type Keys struct {
	ns string
}

func NewKeys(namespace string) Keys {
	return Keys{ns: namespace}
}

func (k Keys) join(parts ...string) string {
	return k.ns + ":" + strings.Join(parts, ":")
}

func (k Keys) State(subreddit string) string {
	return k.join("subreddit", subreddit, "state")
}

func (k Keys) Actions(subreddit string) string {
	return k.join("subreddit", subreddit, "actions")
}

func (k Keys) Daily(subreddit, date string) string {
	return k.join("subreddit", subreddit, "daily", date)
}

func (k Keys) Active(subreddit string) string {
	return k.join("subreddit", subreddit, "active")
}

func (k Keys) Players(subreddit string) string {
	return k.join("subreddit", subreddit, "players")
}

func (k Keys) Player(username, subreddit string) string {
	return k.join("player", username, subreddit, "resources")
}

// Cooldown returns the per player key; a non-empty scope narrows it to one action.
func (k Keys) Cooldown(username, subreddit, scope string) string {
	if scope == "" {
		return k.join("cooldown", username, subreddit)
	}
	return k.join("cooldown", username, subreddit, scope)
}

func (k Keys) Schedules(subreddit string) string {
	return k.join("chronicle", "schedules", subreddit)
}

func (k Keys) Subreddits() string {
	return k.join("subreddits")
}
