package pipeline

// NeedRef is an entry of a job's needs: either an artifact or another job.
type NeedRef interface {
	need()
}

// ArtifactNeed depends on an artifact and the job producing it.
type ArtifactNeed struct {
	Artifact *Artifact
}

func (ArtifactNeed) need() {}

// JobNeed depends on a job without transferring its artifacts.
type JobNeed struct {
	Job *Job
}

func (JobNeed) need() {}

// NeedsArtifact creates a need on a.
func NeedsArtifact(a *Artifact) NeedRef {
	return ArtifactNeed{Artifact: a}
}

// NeedsJob creates a need on j.
func NeedsJob(j *Job) NeedRef {
	return JobNeed{Job: j}
}
