package review

type MarkReviewedRequest struct {
	Comment string `json:"comment"`
}
