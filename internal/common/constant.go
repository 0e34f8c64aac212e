package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "wallet_session"

// StartingDataBonus is the data allowance granted to every new wallet.
const StartingDataBonus int64 = 500
