package redis

import "fmt"

const (
	// KeyPrefixSession is the prefix for session keys
	KeyPrefixSession = "markd:session:"
	// KeyPrefixOAuthState is the prefix for pending OAuth state keys
	KeyPrefixOAuthState = "markd:oauth:state:"
	// KeyPrefixFeed is the prefix for per-owner change feed channels
	KeyPrefixFeed = "markd:feed:bookmarks:"
)

// SessionKey returns the Redis key for a session by ID
func SessionKey(id string) string {
	return KeyPrefixSession + id
}

// OAuthStateKey returns the Redis key for a pending OAuth state
func OAuthStateKey(state string) string {
	return KeyPrefixOAuthState + state
}

// FeedChannel returns the Pub/Sub channel carrying owner's bookmark changes
func FeedChannel(owner string) string {
	return KeyPrefixFeed + owner
}

// FeedPattern returns the Pub/Sub pattern matching every owner's channel
func FeedPattern() string {
	return KeyPrefixFeed + "*"
}

// ExtractFeedOwner extracts the owner from a feed channel name
func ExtractFeedOwner(channel string) (string, error) {
	if len(channel) <= len(KeyPrefixFeed) || channel[:len(KeyPrefixFeed)] != KeyPrefixFeed {
		return "", fmt.Errorf("invalid feed channel: %s", channel)
	}
	return channel[len(KeyPrefixFeed):], nil
}
