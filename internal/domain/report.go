package domain

type StatusCount struct {
	Status MessageStatus `json:"status"`
	Count  int64         `json:"count"`
}

type MessageStats struct {
	Count    int64         `json:"count"`
	Statuses []StatusCount `json:"statuses"`
}

type CampaignStats struct {
	ID       int64        `json:"id"`
	Messages MessageStats `json:"messages"`
}

type Report struct {
	CampaignsCount int64           `json:"campaigns_count"`
	Campaigns      []CampaignStats `json:"campaigns"`
}
