// Package pipeline declares GitLab CI pipelines in Go.
//
// A pipeline is built from variables, stages, jobs and artifacts held in
// ordered stores. The same declaration renders the CI document and executes
// single jobs inside CI, so conditions are evaluated locally with the values
// GitLab provides through the environment.
package pipeline
