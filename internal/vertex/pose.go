package vertex

import "github.com/go-gl/mathgl/mgl32"

// Pose is a model transform with its matching normal matrix.
type Pose struct {
	Model  mgl32.Mat4
	Normal mgl32.Mat3
}

// IdentityPose returns the identity transform.
func IdentityPose() Pose {
	return Pose{Model: mgl32.Ident4(), Normal: mgl32.Ident3()}
}

// TransformPosition applies the model matrix to p.
func (p Pose) TransformPosition(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(v, p.Model)
}

// TransformNormal applies the normal matrix to n and renormalizes.
func (p Pose) TransformNormal(n mgl32.Vec3) mgl32.Vec3 {
	out := p.Normal.Mul3x1(n)
	if out.Len() == 0 {
		return out
	}
	return out.Normalize()
}

// PoseStack is a stack of transforms. The zero value is not usable; call
// NewPoseStack.
type PoseStack struct {
	poses []Pose
}

// NewPoseStack returns a stack holding the identity pose.
func NewPoseStack() *PoseStack {
	return &PoseStack{poses: []Pose{IdentityPose()}}
}

// Last returns the current pose.
func (s *PoseStack) Last() Pose {
	return s.poses[len(s.poses)-1]
}

// Push duplicates the current pose.
func (s *PoseStack) Push() {
	s.poses = append(s.poses, s.Last())
}

// Pop discards the current pose. The root pose is never popped.
func (s *PoseStack) Pop() {
	if len(s.poses) > 1 {
		s.poses = s.poses[:len(s.poses)-1]
	}
}

// Depth returns the number of poses on the stack.
func (s *PoseStack) Depth() int { return len(s.poses) }

// Translate moves the current pose.
func (s *PoseStack) Translate(x, y, z float32) {
	top := &s.poses[len(s.poses)-1]
	top.Model = top.Model.Mul4(mgl32.Translate3D(x, y, z))
}

// Scale scales the current pose. Negative or non-uniform scales update the
// normal matrix as well.
func (s *PoseStack) Scale(x, y, z float32) {
	top := &s.poses[len(s.poses)-1]
	top.Model = top.Model.Mul4(mgl32.Scale3D(x, y, z))
	if x == y && y == z {
		if x < 0 {
			top.Normal = top.Normal.Mul(-1)
		}
		return
	}
	top.Normal = top.Normal.Mul3(mgl32.Diag3(mgl32.Vec3{1 / x, 1 / y, 1 / z}))
}

// Rotate rotates the current pose by angle radians around axis.
func (s *PoseStack) Rotate(angle float32, axis mgl32.Vec3) {
	top := &s.poses[len(s.poses)-1]
	rot := mgl32.HomogRotate3D(angle, axis.Normalize())
	top.Model = top.Model.Mul4(rot)
	top.Normal = top.Normal.Mul3(rot.Mat3())
}
