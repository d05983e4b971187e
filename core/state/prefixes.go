package state

import "encoding/hex"

const (
	poolGlobalPrefix   = "points/pool/global/"
	poolUserPrefix     = "points/pool/user/"
	stakeAccountPrefix = "points/stake/account/"
	stakeActivePrefix  = "points/stake/active/"
	claimTimelockKey   = "points/claim/timelock"
	claimedPrefix      = "points/claim/claimed/"
	penaltyPrefix      = "points/claim/penalty/"
	redeemedPrefix     = "points/hub/redeemed/"
	totalRedeemedKey   = "points/hub/redeemed-total"
)

func poolGlobalKey(module string) []byte {
	return []byte(poolGlobalPrefix + module)
}

func poolUserKey(module string, addr [20]byte) []byte {
	return []byte(poolUserPrefix + module + "/" + hex.EncodeToString(addr[:]))
}

func stakeAccountKey(module string, addr [20]byte) []byte {
	return []byte(stakeAccountPrefix + module + "/" + hex.EncodeToString(addr[:]))
}

func stakeActiveKey(module string) []byte {
	return []byte(stakeActivePrefix + module)
}

func addrKey(prefix string, addr [20]byte) []byte {
	return []byte(prefix + hex.EncodeToString(addr[:]))
}
