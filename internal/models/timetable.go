package models

// ConflictPair names two classes whose meeting times overlap on the same
// day. Indexes refer to the caller's input sequence, with IndexA < IndexB.
type ConflictPair struct {
	IndexA    int    `json:"index_a"`
	IndexB    int    `json:"index_b"`
	ClassAID  string `json:"class_a_id"`
	ClassBID  string `json:"class_b_id"`
	ScheduleA string `json:"schedule_a"`
	ScheduleB string `json:"schedule_b"`
}
