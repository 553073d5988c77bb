package main

// Tool argument types, one struct per tool that takes parameters.

type contentGetParams struct {
	Key string `json:"key"`
}

type contentSetParams struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

type submissionsListParams struct {
	Status string `json:"status"`
	Limit  int    `json:"limit"`
}

type submissionStatusParams struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type partnersListParams struct {
	Status string `json:"status"`
}
