package request

type DeleteDatabase struct {
	SkipFinalSnapshot       bool   `json:"skip_final_snapshot"`
	FinalSnapshotIdentifier string `json:"final_snapshot_identifier" validate:"omitempty,max=255"`
}
