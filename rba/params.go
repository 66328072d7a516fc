package rba

// CovRecovery names how much covariance information to recover after a
// local optimization pass. The optimizer in rba/optimize does not read it:
// no covariance is recovered at any level.
type CovRecovery string

// The three covariance-recovery levels from spec.md §6.
const (
	CovRecoveryNone            CovRecovery = "none"
	CovRecoveryLandmarksApprox CovRecovery = "landmarks_approx"
	CovRecoveryFull            CovRecovery = "full"
)

// ECPKind selects which Edge Creation Policy variant to run.
type ECPKind string

// The two ECP variants from spec.md §4.3.
const (
	ECPLinear ECPKind = "linear"
	ECPSubmap ECPKind = "fixed_size_submap"
)

// TreeParameters bounds the spanning-tree and optimization windows.
type TreeParameters struct {
	MaxTreeDepth     int `yaml:"max_tree_depth"`
	MaxOptimizeDepth int `yaml:"max_optimize_depth"`
}

// OptimizerParameters configures the Levenberg-Marquardt solver. Field
// names and defaults mirror spec.md §6 and §4.7.
type OptimizerParameters struct {
	OptimizeNewEdgesAlone               bool        `yaml:"optimize_new_edges_alone"`
	UseRobustKernel                     bool        `yaml:"use_robust_kernel"`
	KernelParam                         float64     `yaml:"kernel_param"`
	MaxIters                            int         `yaml:"max_iters"`
	MaxErrorPerObsToStop                float64     `yaml:"max_error_per_obs_to_stop"`
	MaxRho                              float64     `yaml:"max_rho"`
	MaxLambda                           float64     `yaml:"max_lambda"`
	MinErrorReductionRatioToRelinearize float64     `yaml:"min_error_reduction_ratio_to_relinearize"`
	CovRecovery                         CovRecovery `yaml:"cov_recovery"`
	MaxCovRecoveryDim                   int         `yaml:"max_cov_recovery_dim"`
}

// ECPParameters configures the Edge Creation Policy.
type ECPParameters struct {
	Kind                 ECPKind `yaml:"kind"`
	SubmapSize           int     `yaml:"submap_size"`
	MinObsToLoopClosure  int     `yaml:"min_obs_to_loop_closure"`
}

// SensorParameters holds per-observation-type parameters: camera
// calibration, stereo baseline, sensor pose on the robot, and the diagonal
// of the observation-noise information matrix.
type SensorParameters struct {
	// CameraFx, CameraFy, CameraCx, CameraCy are the pinhole intrinsics
	// used by the stereo landmark matcher to back-project disparities.
	CameraFx                              float64 `yaml:"camera_fx"`
	CameraFy                              float64 `yaml:"camera_fy"`
	CameraCx                              float64 `yaml:"camera_cx"`
	CameraCy                              float64 `yaml:"camera_cy"`
	StereoBaseline                        float64 `yaml:"stereo_baseline"`
	// SensorPoseOnRobot is the (fixed) pose of the sensor on the robot
	// body; identity when the sensor sits at the robot origin.
	SensorPoseOnRobot PoseParams `yaml:"sensor_pose_on_robot"`
	// ObsNoiseInformation is the diagonal of the observation-noise
	// information matrix (one entry per observation dimension). The
	// optimizer in rba/optimize does not read it: its residuals enter the
	// cost unweighted, and UseRobustKernel/KernelParam are not read either.
	ObsNoiseInformation []float64 `yaml:"obs_noise_information"`
}

// PoseParams is a YAML-friendly flattening of a pose.Pose: either
// [x,y,yaw] (SE2) or [x,y,z,rx,ry,rz] (SE3), matching pose.Pose.Params().
type PoseParams []float64

// Parameters is the full configuration block described in spec.md §6.
type Parameters struct {
	Tree      TreeParameters      `yaml:"tree"`
	Optimizer OptimizerParameters `yaml:"optimizer"`
	ECP       ECPParameters       `yaml:"ecp"`
	Sensor    SensorParameters    `yaml:"sensor"`
	// Is3D selects whether kf2kf edges and landmarks are SE(3)/3D (true)
	// or SE(2)/2D (false). Fixed per engine instance.
	Is3D bool `yaml:"is_3d"`
}

// DefaultParameters returns the parameter block with every default named
// in spec.md §6.
func DefaultParameters() Parameters {
	return Parameters{
		Tree: TreeParameters{
			MaxTreeDepth:     4,
			MaxOptimizeDepth: 4,
		},
		Optimizer: OptimizerParameters{
			OptimizeNewEdgesAlone:               true,
			UseRobustKernel:                     false,
			KernelParam:                         3,
			MaxIters:                            20,
			MaxErrorPerObsToStop:                1e-9,
			MaxRho:                              3,
			MaxLambda:                            1e9,
			MinErrorReductionRatioToRelinearize: 0.01,
			CovRecovery:                         CovRecoveryNone,
			MaxCovRecoveryDim:                   64,
		},
		ECP: ECPParameters{
			Kind:                ECPLinear,
			SubmapSize:          15,
			MinObsToLoopClosure: 4,
		},
	}
}
