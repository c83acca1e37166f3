package pose

// NeutralPose returns a standing pose with both arms hanging at the sides.
// Coordinates are normalized image space, y grows downward.
func NeutralPose() *Snapshot {
	return NewSnapshot(map[Landmark]Point3D{
		Nose:          {X: 0.50, Y: 0.20, Z: -0.30},
		LeftShoulder:  {X: 0.60, Y: 0.35, Z: -0.10},
		RightShoulder: {X: 0.40, Y: 0.35, Z: -0.10},
		LeftElbow:     {X: 0.63, Y: 0.50, Z: -0.05},
		RightElbow:    {X: 0.37, Y: 0.50, Z: -0.05},
		LeftWrist:     {X: 0.64, Y: 0.65, Z: -0.05},
		RightWrist:    {X: 0.36, Y: 0.65, Z: -0.05},
		LeftHip:       {X: 0.57, Y: 0.65, Z: 0.00},
		RightHip:      {X: 0.43, Y: 0.65, Z: 0.00},
	})
}

// ArmsRaisedPose returns a pose with both wrists above the shoulders.
func ArmsRaisedPose() *Snapshot {
	return NewSnapshot(map[Landmark]Point3D{
		Nose:          {X: 0.50, Y: 0.20, Z: -0.30},
		LeftShoulder:  {X: 0.60, Y: 0.35, Z: -0.10},
		RightShoulder: {X: 0.40, Y: 0.35, Z: -0.10},
		LeftElbow:     {X: 0.66, Y: 0.22, Z: -0.10},
		RightElbow:    {X: 0.34, Y: 0.22, Z: -0.10},
		LeftWrist:     {X: 0.68, Y: 0.08, Z: -0.12},
		RightWrist:    {X: 0.32, Y: 0.08, Z: -0.12},
		LeftHip:       {X: 0.57, Y: 0.65, Z: 0.00},
		RightHip:      {X: 0.43, Y: 0.65, Z: 0.00},
	})
}

// HandOnHipPose returns a pose with the left hand resting on the left hip,
// the arm bent close to a right angle at the elbow.
func HandOnHipPose() *Snapshot {
	return NewSnapshot(map[Landmark]Point3D{
		Nose:          {X: 0.50, Y: 0.20, Z: -0.30},
		LeftShoulder:  {X: 0.60, Y: 0.35, Z: -0.10},
		RightShoulder: {X: 0.40, Y: 0.35, Z: -0.10},
		LeftElbow:     {X: 0.72, Y: 0.50, Z: -0.05},
		RightElbow:    {X: 0.37, Y: 0.50, Z: -0.05},
		LeftWrist:     {X: 0.72, Y: 0.62, Z: -0.05},
		RightWrist:    {X: 0.36, Y: 0.65, Z: -0.05},
		LeftHip:       {X: 0.60, Y: 0.50, Z: 0.00},
		RightHip:      {X: 0.43, Y: 0.65, Z: 0.00},
	})
}
