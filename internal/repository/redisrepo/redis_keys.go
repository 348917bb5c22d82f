package redisrepo

import "fmt"

const (
	DEVICE_REACTIONS_KEY    = "reactions:%s"     // <deviceID>
	REACTION_FIELD          = "%s_%s"            // <postID>_<type>
	USER_CACHE_KEY          = "user-cache:%s"    // <userID>
	REVOKED_TOKEN_KEY       = "revoked-token:%s" // <jti>
	LOCAL_SUBSCRIBERS_KEY   = "newsletter:local-subscribers"
	LOCAL_NOTIFICATIONS_KEY = "newsletter:local-notifications"
)

func DeviceReactionsKey(deviceID string) string {
	return fmt.Sprintf(DEVICE_REACTIONS_KEY, deviceID)
}

func ReactionField(postID string, reactionType string) string {
	return fmt.Sprintf(REACTION_FIELD, postID, reactionType)
}

func UserCacheKey(userID string) string {
	return fmt.Sprintf(USER_CACHE_KEY, userID)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(REVOKED_TOKEN_KEY, jti)
}
