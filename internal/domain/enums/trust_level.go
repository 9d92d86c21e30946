package enums

type TrustLevel string

const (
	TrustLevelNew     TrustLevel = "NEW"
	TrustLevelBasic   TrustLevel = "BASIC"
	TrustLevelTrusted TrustLevel = "TRUSTED"
	TrustLevelVeteran TrustLevel = "VETERAN"
	TrustLevelElite   TrustLevel = "ELITE"
)
