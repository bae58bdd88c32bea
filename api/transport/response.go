package transport

import "encoding/json"

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Envelope wraps every JSON response. Success responses carry data and
// optional meta; error responses carry a machine-readable code and a
// human-readable error value.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{Status: statusSuccess, Data: data, Meta: meta}
}

func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{Status: statusError, Code: code, Error: err, Meta: meta}
}

// String renders the envelope as JSON for log lines.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// Pagination is the meta block accompanying list responses.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination derives the page count from the total.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}
