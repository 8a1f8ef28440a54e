// Package agent launches the AI coding agent against a working tree.
//
// Two strategies exist. ContainerStrategy runs the published agent image
// under docker (or podman) with the working tree mounted at /src and the
// output directory at /out; the composed prompt is passed base64-encoded as
// the container's only argument. DirectStrategy runs an agent CLI already
// installed on the build host and tees its output into the log file the
// container image would otherwise write.
package agent
