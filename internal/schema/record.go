package schema

// DocumentMeta describes the source document.
type DocumentMeta struct {
	Title *string `json:"title"`
	Date  *string `json:"date"`
	Pages *int    `json:"pages"`
}

// Referral holds both ends of the referral.
type Referral struct {
	ReferralTo          *string `json:"referral_to"`
	ReferralFocalPoint  *string `json:"referral_focal_point"`
	ReferralPhone       *string `json:"referral_phone"`
	ReferralLocation    *string `json:"referral_location"`
	ReferralEmail       *string `json:"referral_email"`
	ReferringFrom       *string `json:"referring_from"`
	ReferringFocalPoint *string `json:"referring_focal_point"`
	ReferringPhone      *string `json:"referring_phone"`
	ReferringLocation   *string `json:"referring_location"`
	ReferringEmail      *string `json:"referring_email"`
}

type Patient struct {
	FullName                  *string `json:"full_name"`
	Phone                     *string `json:"phone"`
	DateOfBirth               *string `json:"date_of_birth"`
	Gender                    *string `json:"gender"`
	Address                   *string `json:"address"`
	AccompaniedByCareProvider *bool   `json:"accompanied_by_care_provider"`
}

type Diagnoses struct {
	PrimaryDiagnoses []string `json:"primary_diagnoses"`
	OtherDiagnoses   []string `json:"other_diagnoses"`
}

type FunctionalStatus struct {
	Mobility                 *string  `json:"mobility"`
	Precautions              *string  `json:"precautions"`
	SelfCare                 *string  `json:"self_care"`
	CognitiveImpairment      *string  `json:"cognitive_impairment"`
	AssistiveDevicesProvided []string `json:"assistive_devices_provided"`
	AssistiveDevicesRequired []string `json:"assistive_devices_required"`
}

// ReferralRecord is a validated extraction. Scalars are nil when unknown and
// lists are never nil once the record came out of NormalizeAndValidate.
type ReferralRecord struct {
	DocumentMeta         DocumentMeta      `json:"document_meta"`
	Referral             Referral          `json:"referral"`
	Patient              Patient           `json:"patient"`
	Diagnoses            Diagnoses         `json:"diagnoses"`
	Treatments           []string          `json:"treatments"`
	ReasonForReferral    *string           `json:"reason_for_referral"`
	TransportationNeeds  []string          `json:"transportation_needs"`
	FollowUpRequirements []string          `json:"follow_up_requirements"`
	FunctionalStatus     *FunctionalStatus `json:"functional_status"`
	CompiledBy           *string           `json:"compiled_by"`
	Signature            *string           `json:"signature"`
	Position             *string           `json:"position"`
	FileNumber           *string           `json:"file_number"`
}

// PatientName returns the patient's name or "".
func (r *ReferralRecord) PatientName() string {
	if r == nil || r.Patient.FullName == nil {
		return ""
	}
	return *r.Patient.FullName
}

// ReferralTo returns the referral destination or "".
func (r *ReferralRecord) ReferralTo() string {
	if r == nil || r.Referral.ReferralTo == nil {
		return ""
	}
	return *r.Referral.ReferralTo
}
