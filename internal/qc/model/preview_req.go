package model

// PreviewReq carries the raw inputs of a live status preview.
type PreviewReq struct {
	ResultValue      Measurement `json:"result_value"`
	SpecificationMin Measurement `json:"specification_min"`
	SpecificationMax Measurement `json:"specification_max"`
}

type PreviewResp struct {
	PassFailStatus Status `json:"pass_fail_status"`
}
