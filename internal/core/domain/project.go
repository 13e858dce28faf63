package domain

import "time"

type Project struct {
	ID                int64
	Name              string
	Description       string
	UploadMethod      string
	Director          string
	ProductionCompany string
	Roles             []Role
	CreatedAt         time.Time
}

type Role struct {
	ID        int64
	ProjectID int64
	Name      string
	ChannelID string
}

func (p *Project) FindRole(name string) (Role, bool) {
	for _, r := range p.Roles {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}
