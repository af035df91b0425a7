package devserver

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	slogGin "github.com/samber/slog-gin"

	"github.com/fileuploader/uploadwatch/internal/devserver/handlers/students"
	"github.com/fileuploader/uploadwatch/internal/devserver/handlers/upload"
	"github.com/fileuploader/uploadwatch/internal/version"
)

func SetupRoutes(svc *Services, maxUploadMem int64) http.Handler {
	r := gin.New()
	r.MaxMultipartMemory = maxUploadMem

	uploadH := upload.New(svc.Ingest)
	studentsH := students.New(svc.Students)

	httpLogger := slog.Default().WithGroup("http")
	r.Use(slogGin.NewWithConfig(httpLogger, slogGin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)

	v1 := r.Group("/api")
	{
		// the status socket must not be wrapped by gzip
		v1.GET("/upload/status/:uploadID", uploadH.Status)
		v1.POST("/upload", uploadH.Upload)

		read := v1.Group("", gzip.Gzip(gzip.BestSpeed))
		read.GET("/students", studentsH.List)
		read.GET("/students/name/:name", studentsH.GetByName)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	})

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error": "method not allowed",
		})
	})

	return r.Handler()
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.DetailedWithApp())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
