package models

// Outcome classifies the result of an enrolment action.
type Outcome string

// Possible outcomes.
const (
	OutcomeAdmitted Outcome = "ADMITTED"
	OutcomeDropped  Outcome = "DROPPED"
	OutcomeRejected Outcome = "REJECTED"
)

// RejectReason is a closed set of rejection codes so callers can render a
// specific message without string matching.
type RejectReason string

// Rejection reasons, in the order the rule chain can produce them.
const (
	ReasonClassNotFound          RejectReason = "CLASS_NOT_FOUND"
	ReasonCourseAlreadyCompleted RejectReason = "COURSE_ALREADY_COMPLETED"
	ReasonAlreadyEnroledInClass  RejectReason = "ALREADY_ENROLED_IN_CLASS"
	ReasonAlreadyEnroledInCourse RejectReason = "ALREADY_ENROLED_IN_COURSE"
	ReasonClassFull              RejectReason = "CLASS_FULL"
	ReasonPrerequisiteNotMet     RejectReason = "PREREQUISITE_NOT_MET"
	ReasonEnrolmentNotFound      RejectReason = "ENROLMENT_NOT_FOUND"
)

// Decision is the outcome of an eligibility evaluation or a drop. Rejections
// are expected, enumerable outcomes, not errors.
type Decision struct {
	Outcome Outcome      `json:"outcome"`
	Reason  RejectReason `json:"reason,omitempty"`
}

// Admitted reports whether the decision allows the enrolment.
func (d Decision) Admitted() bool {
	return d.Outcome == OutcomeAdmitted
}

// Admit builds an admitting decision.
func Admit() Decision {
	return Decision{Outcome: OutcomeAdmitted}
}

// Dropped builds a successful drop decision.
func Dropped() Decision {
	return Decision{Outcome: OutcomeDropped}
}

// Reject builds a rejecting decision carrying the first failed rule's reason.
func Reject(reason RejectReason) Decision {
	return Decision{Outcome: OutcomeRejected, Reason: reason}
}
