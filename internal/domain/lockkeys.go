package domain

import "strconv"

// UserLockKey returns the key that serializes changes to the user's account list.
func UserLockKey(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}

// AccountLockKey returns the key that serializes changes to the account balance.
func AccountLockKey(id int64) string {
	return "account:" + strconv.FormatInt(id, 10)
}
