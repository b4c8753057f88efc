package stats

/*
This file defines all the metrics being collected. As new metrics are added please follow this pattern.
*/

const (
	/************************* API server metrics **************************/
	/*
		Per operation metrics are scoped by route name, e.g. "api/pilots_submit/requestCounter"
	*/
	APIRequestCounter = "requestCounter"

	/*
		requests answered with a failure envelope
	*/
	APIErrorCounter = "errorCounter"

	/*
		time spent in a handler, including the time spent blocked in wait or cancel
	*/
	APIRequestLatency_ms = "requestLatency_ms"

	/*
		requests rejected by the rate limiter
	*/
	APIThrottledCounter = "throttledCounter"

	/*
		time since the server started
	*/
	APIServerUptime_ms = "serverUptimeGauge_ms"

	/************************* Auth metrics **************************/
	AuthLoginOkCounter      = "loginOkCounter"
	AuthLoginFailureCounter = "loginFailureCounter"
	AuthRejectedCounter     = "unauthenticatedCounter"

	/************************* Account metrics **************************/
	/*
		number of live sessions over all accounts
	*/
	AccountLiveSessionsGauge = "liveSessionsGauge"

	AccountSessionCreatedCounter = "sessionCreatedCounter"
	AccountSessionClosedCounter  = "sessionClosedCounter"

	/************************* Adapter metrics **************************/
	/*
		pilots and tasks registered in adapters that are still open, incremented on
		submission and decremented when the adapter closes
	*/
	AdapterLivePilotsCounter = "livePilotsCounter"
	AdapterLiveTasksCounter  = "liveTasksCounter"

	AdapterPilotsSubmittedCounter = "pilotsSubmittedCounter"
	AdapterTasksSubmittedCounter  = "tasksSubmittedCounter"

	/*
		notifications from the engine applied to a state table
	*/
	AdapterNotificationCounter = "notificationCounter"

	/*
		engine calls that failed and surfaced as UpstreamError
	*/
	AdapterEngineErrorCounter = "engineErrorCounter"

	/*
		time between entering a wait and its return
	*/
	AdapterWaitLatency_ms = "waitLatency_ms"
)
