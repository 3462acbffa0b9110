// Package planner turns sorted input lists into per-item decisions before any
// work starts: FilePlan for the one-to-one conversion stages and a Schedule
// of FramePlans (input pair, image name, camera pose) for rendering.
package planner
