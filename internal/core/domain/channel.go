package domain

type DistributionChannel struct {
	ProjectName string
	RoleName    string
	ChannelID   string
	UsedDefault bool
}
