package model

// ReferenceData lists canonical values offered to form widgets.
type ReferenceData struct {
	TestTypes []string `json:"test_types"`
	Meanings  []string `json:"signature_meanings"`
	Roles     []string `json:"roles"`
}

func DefaultReferenceData() ReferenceData {
	return ReferenceData{
		TestTypes: append([]string(nil), CanonicalTestTypes...),
		Meanings:  []string{MeaningTestedBy, MeaningReviewedBy, MeaningApprovedBy},
		Roles:     []string{RoleQCAnalyst, RoleQCManager, RoleAdmin, RoleAuditor},
	}
}
